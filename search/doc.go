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


// Package search provides ranked semantic retrieval over ingested content.
//
// The Searcher embeds the query text, asks the chunk index for each item's
// single best-matching chunk above a similarity threshold, then filters to
// completed items of the requested type and orders by score. Only completed
// items are ever returned; partially ingested or failed items stay invisible
// to queries.
package search
