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


// Package openai provides embedding services using OpenAI-compatible APIs.
//
// This package implements ai.Provider using the langchaingo library to talk
// to OpenAI or OpenAI-compatible servers (Ollama, LocalAI, vLLM, or a
// text-embeddings-inference instance serving sentence-transformers models).
// Each registry model name maps to its upstream identifier, which is sent as
// the "model" field of the embeddings request.
//
// # Usage
//
//	config := ai.NewConfig(ai.WithEmbeddingHost("http://localhost:8080")) // /v1 added automatically
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	embedder, err := provider.Embedder("bert")
//	vectors, err := embedder.EmbedTexts(ctx, texts)
//
// # Concurrency
//
// Batches larger than Config.BatchSize are split and sent concurrently on an
// ants worker pool of Config.Concurrency workers shared by every embedder of
// the provider.
package openai
