package clinical

import "sort"

// SortVaccinations deja el orden de los listados: más reciente primero.
func SortVaccinations(items []Vaccination) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if c := a.ApplicationDate.Compare(b.ApplicationDate); c != 0 {
			return c > 0
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

func SortParasiticControls(items []ParasiticControl) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if c := a.ApplicationDate.Compare(b.ApplicationDate); c != 0 {
			return c > 0
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}
