// Package turkish provides Turkish-locale string folding and province canonicalization.
package turkish

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Cities lists the 81 provinces in their canonical spelling.
var Cities = []string{
	"Adana", "Adıyaman", "Afyonkarahisar", "Ağrı", "Amasya", "Ankara", "Antalya", "Artvin", "Aydın",
	"Balıkesir", "Bilecik", "Bingöl", "Bitlis", "Bolu", "Burdur", "Bursa",
	"Çanakkale", "Çankırı", "Çorum",
	"Denizli", "Diyarbakır",
	"Edirne", "Elazığ", "Erzincan", "Erzurum", "Eskişehir",
	"Gaziantep", "Giresun", "Gümüşhane",
	"Hakkâri", "Hatay",
	"Isparta", "Mersin",
	"İstanbul", "İzmir",
	"Kars", "Kastamonu", "Kayseri", "Kırklareli", "Kırşehir", "Kocaeli", "Konya", "Kütahya",
	"Malatya", "Manisa", "Kahramanmaraş", "Mardin", "Muğla", "Muş", "Nevşehir", "Niğde",
	"Ordu", "Rize", "Sakarya", "Samsun", "Siirt", "Sinop", "Sivas", "Tekirdağ", "Tokat", "Trabzon", "Tunceli",
	"Şanlıurfa", "Uşak", "Van", "Yozgat", "Zonguldak",
	"Aksaray", "Bayburt", "Karaman", "Kırıkkale", "Batman", "Şırnak", "Bartın", "Ardahan", "Iğdır", "Yalova",
	"Karabük", "Kilis", "Osmaniye", "Düzce",
}

var foldedCities = func() map[string]string {
	m := make(map[string]string, len(Cities))
	for _, c := range Cities {
		m[Fold(c)] = c
	}
	return m
}()

// Fold lowercases s with Turkish casing rules, strips diacritics and maps the dotless ı
// to i, so that "İZMİR", "izmir" and "Izmir" compare equal.
func Fold(s string) string {
	lower := cases.Lower(language.Turkish).String(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, lower)
	if err != nil {
		folded = lower
	}

	return strings.ReplaceAll(folded, "ı", "i")
}

// CanonicalCity returns the canonical province name matching input, or false.
func CanonicalCity(input string) (string, bool) {
	q := strings.TrimSpace(input)
	if q == "" {
		return "", false
	}

	city, ok := foldedCities[Fold(q)]
	return city, ok
}
