/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"log/slog"
	"os"

	"travelstory/internal/cli"
	"travelstory/internal/config"
	"travelstory/internal/crash"
	applog "travelstory/internal/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("main")

	cfg, _, err := config.Load()
	if err != nil {
		l.Warn("config unavailable, crash reports use defaults", slog.Any("err", err))
		cfg = config.Defaults()
	}
	defer crash.Recover(cfg.Storage.DataDir(), cli.ActiveState)

	l.Debug("start", slog.Int("args", len(os.Args)-1))
	return cli.Execute(os.Args[1:], os.Stdout, os.Stderr)
}
