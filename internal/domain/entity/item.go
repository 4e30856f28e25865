package entity

// Item maestro de artículos; aquí solo se usa para mostrar nombres.
type Item struct {
	ID   string
	Name string
}
