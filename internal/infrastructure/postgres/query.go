package postgres

import "strings"

const defaultPageLimit = 50

// pageLimit normaliza el límite de paginación; 0 o negativo usa el valor por defecto.
func pageLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	return limit
}

// prefixed antepone alias. a cada columna de una lista separada por comas.
func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
