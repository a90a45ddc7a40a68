// Package mock provides test double implementations of the embedding interfaces.
//
// This package contains mock implementations of ai.Embedder and ai.Provider
// for use in unit tests. The mocks allow tests to run without an embedding
// service and give controlled, deterministic vectors.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	provider := mock.NewMockProvider()
//	embedder, _ := provider.Embedder("mpnet")
//	vector, err := embedder.EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder().
//	    WithEmbedTextsFunc(func(ctx context.Context, texts []string) ([][]float32, error) {
//	        return nil, errors.New("service down")
//	    })
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: returns deterministic unit vectors based on text hash
//   - MockProvider: hands out one MockEmbedder per registry model
package mock
