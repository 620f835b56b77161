package models

import (
	"errors"
	"strings"
)

// ErrUnknownClient guards the tables against names outside the client set.
var ErrUnknownClient = errors.New("unknown client")

// Client is one of the reseller's customers. The set is closed: payments are
// grouped per client and allocation relies on exact matches.
type Client string

const (
	ClientATaPorte      Client = "A TA PORTE"
	ClientBestDeal      Client = "BEST DEAL"
	ClientLePhenicien   Client = "LE PHÉNICIEN"
	ClientGrandMarcheFR Client = "LE GRAND MARCHÉ DE FRANCE"
)

// Clients lists every known client in display order.
var Clients = []Client{
	ClientATaPorte,
	ClientBestDeal,
	ClientLePhenicien,
	ClientGrandMarcheFR,
}

// CompanyInfo holds the legal details printed on invoices.
type CompanyInfo struct {
	Name      string `json:"name"`
	Siren     string `json:"siren"`
	Address   string `json:"address"`
	Phone     string `json:"phone"`
	VATNumber string `json:"vat_number"`
}

var companies = map[Client]CompanyInfo{
	ClientATaPorte: {
		Name:      "A TA PORTE",
		Siren:     "981176704",
		Address:   "14 RUE DE LA PAIX, 77170 SERVON",
		Phone:     "07 58 33 31 24",
		VATNumber: "FR37981176704",
	},
	ClientGrandMarcheFR: {
		Name:      "LE GRAND MARCHÉ DE FRANCE",
		Siren:     "980966220",
		Address:   "8 RUE JEAN NICOT, 93500 PANTIN",
		Phone:     "07 58 33 31 24",
		VATNumber: "FR55980966220",
	},
	ClientLePhenicien: {
		Name:      "LE PHÉNICIEN",
		Siren:     "979278900",
		Address:   "14 RUE DE LA PAIX, 77170 SERVON",
		Phone:     "06 66 23 16 63",
		VATNumber: "FR40979278900",
	},
	ClientBestDeal: {
		Name:      "BEST DEAL",
		Siren:     "888711389",
		Address:   "64 RUE VIGIER, 91600 SAVIGNY-SUR-ORGE",
		Phone:     "06 99 71 36 89",
		VATNumber: "FR36888711389",
	},
}

// ParseClient matches a client name, ignoring surrounding whitespace and case.
func ParseClient(name string) (Client, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Clients {
		if strings.EqualFold(string(c), name) {
			return c, true
		}
	}
	return "", false
}

// Valid reports whether c belongs to the known client set.
func (c Client) Valid() bool {
	_, ok := companies[c]
	return ok
}

// Company returns the legal details for c.
func (c Client) Company() (CompanyInfo, bool) {
	info, ok := companies[c]
	return info, ok
}
