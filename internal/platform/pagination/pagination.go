package pagination

// Clamp normaliza page/limit: page < 1 => 1, limit < 1 => def, limit > max => max.
func Clamp(page, limit, def, max int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	return page, limit
}

// Bounds devuelve el rango [from, to) de la página dentro de total elementos.
// Compara antes de multiplicar: un page enorme no desborda, da una página vacía.
func Bounds(page, limit, total int) (int, int) {
	if page < 1 || limit < 1 || total <= 0 {
		return 0, 0
	}
	if page-1 > total/limit {
		return total, total
	}
	from := (page - 1) * limit
	if from > total {
		from = total
	}
	to := total
	if total-from > limit {
		to = from + limit
	}
	return from, to
}

func Pages(total, limit int) int {
	if total <= 0 || limit < 1 {
		return 0
	}
	return (total + limit - 1) / limit
}
