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

// Package workflow orchestrates incremental sync runs.
//
// A run resolves its window from the last successful run of its schedule,
// fetches every registered source concurrently, then splits each non-empty
// batch into chunks of at most ChunkSize items which are transformed and
// indexed one at a time in registration order. Every fetch, transform and
// index call goes through an activity.Invoker.
//
// The Coordinator performs a single run in memory. The Runner adds
// durability: it checkpoints a core.RunRecord after every state transition
// and every completed chunk, stages fetch results, and resumes an interrupted
// run from its last checkpoint when asked to run the same RunID again.
//
//	coordinator, err := workflow.NewCoordinator(registry, transformer, indexer)
//	runner, err := workflow.NewRunner(coordinator, runs, history)
//	result, err := runner.Run(ctx, workflow.RunRequest{RunID: id})
package workflow
