// Package identity contiene las funciones puras de normalización y el hash
// determinista de direcciones del motor de identidad de clientes. Sin estado
// y sin acceso a BD: toda comparación de identificadores en el sistema se hace
// por igualdad exacta sobre estos valores canónicos.
package identity

import "strings"

// NormalizeEmail canoniza un email para comparación: trim + minúsculas.
// Cadena vacía significa "sin email" (se persiste como NULL).
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizePhone canoniza un teléfono a forma tipo E.164. Reglas:
//   - se descartan todos los caracteres salvo dígitos y un "+" inicial
//   - con "+" inicial: se conservan los dígitos con su "+"
//   - 10 dígitos (número local US): prefijo "+1"
//   - 11 dígitos empezando en "1": prefijo "+"
//   - más de 10 dígitos: se asume que ya trae código de país, prefijo "+"
//   - menos de 10 dígitos (extensiones internas): pasan como dígitos pelados
//
// Toda ruta de ingesta debe pasar por aquí: la igualdad (=) es la única
// comparación de teléfonos que existe en el sistema.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	hasPlus := strings.HasPrefix(s, "+")

	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}

	switch {
	case hasPlus:
		return "+" + digits
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	case len(digits) > 10:
		return "+" + digits
	default:
		return digits
	}
}
