// README: Common value types shared across modules.
package types

// ID is a unique entity identifier.
type ID string

// Point is a coordinate on the bounded integer grid.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}
