//go:build linux

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package notify

import (
	"github.com/godbus/dbus/v5"
)

const (
	urgencyNormal   = byte(1)
	urgencyCritical = byte(2)
)

// sendDesktop uses the freedesktop.org notification service on the session bus.
func sendDesktop(app, icon string, t Toast) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	urgency := urgencyNormal
	if t.Destructive {
		urgency = urgencyCritical
	}
	hints := map[string]dbus.Variant{"urgency": dbus.MakeVariant(urgency)}
	obj := conn.Object("org.freedesktop.Notifications", "/org/freedesktop/Notifications")
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		app, uint32(0), icon, t.Title, t.Description, []string{}, hints, int32(5000))
	return call.Err
}
