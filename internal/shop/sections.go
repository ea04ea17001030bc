// Package shop builds the bot's storefront menus and messages.
package shop

import "diamond-shop/internal/model"

// Section is a catalog category shown as a main menu button.
type Section struct {
	Type   model.PackageType
	Emoji  string
	Button string
	Title  string
}

// Sections are the catalog categories in menu order.
var Sections = []Section{
	{Type: model.PackageDiamonds, Emoji: "💎", Button: "💎 Diamonds", Title: "Available diamond packages"},
	{Type: model.PackageVoucher, Emoji: "🎁", Button: "🎁 Vouchers", Title: "Available vouchers"},
	{Type: model.PackageEvoPass, Emoji: "🛡️", Button: "🛡️ Evo passes", Title: "Available Evo passes"},
}

// SectionFor returns the section of a package type.
func SectionFor(t model.PackageType) (Section, bool) {
	for _, s := range Sections {
		if s.Type == t {
			return s, true
		}
	}
	return Section{}, false
}
