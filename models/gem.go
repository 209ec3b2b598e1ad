// models/gem.go
package models

// GemType is an immutable catalog entry: a fixed-value reward a team can
// earn toward its score.
type GemType struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// Gems is the read-only reward catalog.
var Gems = []GemType{
	{Name: "Sapphire", Value: 10, Icon: "💎", Color: "#0F52BA"},
	{Name: "Emerald", Value: 25, Icon: "💚", Color: "#50C878"},
	{Name: "Ruby", Value: 50, Icon: "❤️", Color: "#E0115F"},
	{Name: "Diamond", Value: 100, Icon: "✨", Color: "#B9F2FF"},
}

// GemByName looks up a catalog entry by name.
func GemByName(name string) (GemType, bool) {
	for _, g := range Gems {
		if g.Name == name {
			return g, true
		}
	}
	return GemType{}, false
}
