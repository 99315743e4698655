/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package notify delivers toasts, the short user-facing messages the editor
// shows after an action.
package notify

import (
	"log/slog"
	"sync"

	applog "travelstory/internal/log"
)

// Toast is one user-facing message. Destructive toasts report failures.
type Toast struct {
	Title       string
	Description string
	Destructive bool
}

// Notifier shows toasts.
type Notifier interface {
	Notify(t Toast)
}

// LogNotifier writes toasts to the application log.
type LogNotifier struct{}

func (LogNotifier) Notify(t Toast) {
	l := applog.WithOperation(applog.WithComponent("notify"), "toast")
	attrs := []any{slog.String("title", t.Title)}
	if t.Description != "" {
		attrs = append(attrs, slog.String("description", t.Description))
	}
	if t.Destructive {
		l.Warn("toast", attrs...)
		return
	}
	l.Info("toast", attrs...)
}

// Recorder keeps every toast in order.
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
}

// Toasts returns a copy of the recorded toasts.
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.toasts...)
}

// Last returns the most recent toast.
func (r *Recorder) Last() (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.toasts) == 0 {
		return Toast{}, false
	}
	return r.toasts[len(r.toasts)-1], true
}

// Multi fans a toast out to several notifiers.
type Multi []Notifier

func (m Multi) Notify(t Toast) {
	for _, n := range m {
		if n != nil {
			n.Notify(t)
		}
	}
}

// Desktop sends toasts to the desktop notification service where one is
// available and falls back to the log otherwise.
type Desktop struct {
	AppName  string
	IconPath string
	Fallback Notifier
}

func (d Desktop) Notify(t Toast) {
	if err := sendDesktop(d.appName(), d.IconPath, t); err != nil {
		applog.WithOperation(applog.WithComponent("notify"), "desktop").Debug("desktop notification failed", slog.Any("err", err))
		if d.Fallback != nil {
			d.Fallback.Notify(t)
		}
	}
}

func (d Desktop) appName() string {
	if d.AppName == "" {
		return "Travel Story"
	}
	return d.AppName
}
