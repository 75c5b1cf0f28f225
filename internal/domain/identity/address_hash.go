package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// PostalAddress dirección de envío/facturación tal como la entrega el
// proveedor. Identificador de último recurso: solo se usa cuando la fuente
// no expone email ni teléfono.
type PostalAddress struct {
	Name       string
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// addressHashLen longitud del digest en caracteres hexadecimales.
const addressHashLen = 16

// defaultCountry país asumido cuando el proveedor no lo envía.
const defaultCountry = "US"

// ComputeAddressHash produce el digest determinista de 16 hex de una dirección
// normalizada, o "" si la dirección no es utilizable como identificador:
// se exige (nombre o línea 1) y (ciudad o código postal).
//
// Normalización por campo: fold de diacríticos (NFD + eliminación de marcas),
// minúsculas, puntuación fuera, espacios colapsados; el código postal además
// pierde ceros a la izquierda. Los campos se concatenan con "|" y se trunca
// SHA-256. La línea 2 participa a propósito: dos apartamentos distintos en la
// misma calle son dos hogares distintos y no deben compartir hash.
func ComputeAddressHash(addr PostalAddress) string {
	name := normalizeAddressPart(addr.Name)
	line1 := normalizeAddressPart(addr.Line1)
	line2 := normalizeAddressPart(addr.Line2)
	city := normalizeAddressPart(addr.City)
	state := normalizeAddressPart(addr.State)
	postal := strings.TrimLeft(normalizeAddressPart(addr.PostalCode), "0")
	country := normalizeAddressPart(addr.Country)
	if country == "" {
		country = normalizeAddressPart(defaultCountry)
	}

	if name == "" && line1 == "" {
		return ""
	}
	if city == "" && postal == "" {
		return ""
	}

	payload := strings.Join([]string{name, line1, line2, city, state, postal, country}, "|")
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:addressHashLen]
}

// foldDiacritics transforma "Peña Nº 3" en "Pena N 3": descompone (NFD),
// elimina las marcas combinantes y recompone.
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeAddressPart minúsculas, sin diacríticos ni puntuación, espacios colapsados.
func normalizeAddressPart(s string) string {
	folded, _, err := transform.String(foldDiacritics, s)
	if err == nil {
		s = folded
	}
	var b strings.Builder
	lastSpace := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) || r == '|':
			// puntuación cuenta como separador para no pegar tokens ("St.Paul")
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}
