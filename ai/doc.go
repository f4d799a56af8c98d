// Copyright 2025 Hoard Authors
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


// Package ai provides abstractions for the embedding services used by hoard.
//
// The core pipeline and searcher depend on the Embedder interface rather
// than any concrete provider, so deterministic fakes can be substituted in
// tests and local OpenAI-compatible services swapped in without touching
// business logic.
//
// Subpackages:
//
//   - ai/openai: langchaingo-backed implementation for OpenAI-compatible APIs
//   - ai/mock: deterministic test double
package ai
