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


// Package fingerprint matches research topics to researchers.
//
// Researchers declare how they split their work across topics. fingerprint
// turns that table into per-researcher profiles, embeds each profile and
// each topic name, and answers "who works on X?" by resolving X to a known
// topic and ranking researchers by the similarity of their profile vector to
// the topic's vector.
//
// The Engine ties the pieces together:
//
//	provider, err := fingerprint.NewProvider(ai.NewConfig(ai.WithProvider(ai.ProviderStatic)))
//	engine, err := fingerprint.NewEngine(provider,
//	    fingerprint.WithTableSource(fingerprint.FileSource("experts.csv")))
//	defer engine.Close()
//
//	resp, err := engine.Recommend(ctx, "mpnet", core.Query{Topic: "graph theory", TopK: 10})
//
// The building blocks are usable on their own: table loads a CSV, profile
// builds an immutable Profile, and recommend queries it.
package fingerprint
