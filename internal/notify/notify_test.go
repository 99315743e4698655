/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package notify

import (
	"bytes"
	"strings"
	"testing"

	applog "travelstory/internal/log"
)

func TestRecorder_KeepsOrder(t *testing.T) {
	var r Recorder
	if _, ok := r.Last(); ok {
		t.Fatalf("empty recorder has a last toast")
	}
	r.Notify(Toast{Title: "Image added"})
	r.Notify(Toast{Title: "Error exporting PDF", Destructive: true})
	got := r.Toasts()
	if len(got) != 2 || got[0].Title != "Image added" {
		t.Fatalf("toasts = %+v", got)
	}
	last, _ := r.Last()
	if !last.Destructive {
		t.Fatalf("last toast not destructive")
	}
}

func TestMulti_FansOut(t *testing.T) {
	var a, b Recorder
	Multi{&a, nil, &b}.Notify(Toast{Title: "Canvas cleared"})
	if len(a.Toasts()) != 1 || len(b.Toasts()) != 1 {
		t.Fatalf("fan out missed a notifier")
	}
}

func TestLogNotifier_Levels(t *testing.T) {
	var buf bytes.Buffer
	applog.InitWriter(applog.Options{Level: "info", Format: "json"}, &buf)
	LogNotifier{}.Notify(Toast{Title: "File too large", Description: "Please upload an image smaller than 5MB", Destructive: true})
	out := buf.String()
	if !strings.Contains(out, `"level":"WARN"`) || !strings.Contains(out, `"title":"File too large"`) {
		t.Fatalf("unexpected log output: %s", out)
	}
}

func TestDesktop_FallsBack(t *testing.T) {
	// no session bus in the test environment
	t.Setenv("DBUS_SESSION_BUS_ADDRESS", "unix:path=/nonexistent/bus")
	var r Recorder
	Desktop{Fallback: &r}.Notify(Toast{Title: "Video generated!"})
	if last, ok := r.Last(); !ok || last.Title != "Video generated!" {
		t.Fatalf("fallback not used: %+v", r.Toasts())
	}
}
