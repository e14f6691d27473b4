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

// Package search answers queries against the collections written by sync runs.
//
// A query is embedded with the provider used for indexing and compared with
// the documents of the requested sources. Candidates whose text or title holds
// every significant query word get a fixed score boost. Pass a SearchMonitor,
// such as LogMonitor, to SearchWithMonitor to observe each stage.
package search
