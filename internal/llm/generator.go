package llm

import "context"

// Generator turns an assembled prompt into answer text. The call may block
// on network I/O for the full duration of the model's streamed response;
// cancelling the context aborts the stream and discards the partial answer.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
