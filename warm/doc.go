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


// Package warm precomputes embeddings into a persistent vector cache.
//
// A warm cache lets profiles be rebuilt without calling the embedding
// service. The Warmer collects every text a profile build would embed,
// skips those already cached, and embeds the rest in batches with retry:
//
//	store, _ := badger.OpenVectorCache(path, false)
//	w := warm.NewWarmer(provider, store, warm.DefaultConfig(), os.Stderr)
//	stats, err := w.Run(ctx, table, "mpnet", "bert")
package warm
