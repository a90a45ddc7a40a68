// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package ai provides the embedding abstractions used by fingerprint.
//
// Researcher profiles and topic names are turned into vectors by an
// Embedder. Which embedder is used is chosen by a short model name from
// the Models registry ("bert", "mpnet", ...), resolved through a Provider.
// Two names never share a vector space, so profiles built with one model
// must only be compared against topic vectors from the same model.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible embedding services via langchaingo
//   - ai/static: offline hashing embedder, deterministic per model
//   - ai/cache: in-memory LRU and persistent caching decorators
//   - ai/mock: test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, static.NewProvider) return
// INTERFACE types. Test utility constructors (mock.NewMockEmbedder) return
// CONCRETE types so tests can inject behavior and read CallCount.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithEmbeddingHost("http://localhost:8080"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	embedder, err := provider.Embedder("mpnet")
//	vectors, err := embedder.EmbedTexts(ctx, []string{"graph theory"})
//
// Transient provider failures can be absorbed with WithRetry:
//
//	embedder = ai.WithRetry(embedder, 3, 200*time.Millisecond)
package ai
