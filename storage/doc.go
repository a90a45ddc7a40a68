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


// Package storage provides the storage abstraction layer for fingerprint.
//
// The only thing fingerprint persists is embedding vectors: profiles are
// rebuilt from the researcher table on every load, but the vectors for
// unchanged profile texts and topic names can be reused across runs. The
// VectorCache interface keys vectors by (model, text) so that vectors from
// different models never mix.
//
// # Constructor Return Type Pattern
//
// Public constructors return the interface:
//
//	cache, err := badger.OpenVectorCache("/path/to/cache", false) // storage.VectorCache
//
// Internal package constructors may return concrete types since they're only
// used within the implementation package.
//
// # Serialization
//
// Cached entries are encoded in MUS format (github.com/mus-format/mus-go).
// Each entry stores the source text next to the vector so a reader can tell
// a genuine hit from a key hash collision.
//
// # Thread Safety
//
// All implementations must be thread-safe and support concurrent access
// from multiple goroutines.
package storage
