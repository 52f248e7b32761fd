package render

// Renderer prints the result of one command
type Renderer[T any] interface {
	Render(result T) error
}
