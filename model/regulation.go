package model

// Regulation is one entry in the regulatory update database.
type Regulation struct {
	ID            string   `json:"id" yaml:"id"`
	Title         string   `json:"title" yaml:"title"`
	Jurisdiction  string   `json:"jurisdiction" yaml:"jurisdiction"`
	DatePublished string   `json:"date_published" yaml:"date_published"`
	Summary       string   `json:"summary" yaml:"summary"`
	Keywords      []string `json:"keywords" yaml:"keywords"`
}
