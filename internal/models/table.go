package models

// Table is a single extracted table with its rendered HTML and raw cells.
type Table struct {
	Page   int        `json:"page"`
	Order  int        `json:"order"`
	Flavor string     `json:"flavor"`
	HTML   string     `json:"html"`
	Data   [][]string `json:"data"`
}
