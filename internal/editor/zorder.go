/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package editor

import (
	"fmt"
	"sort"

	"panelcanvas/internal/domain"
)

// ZAction is a stacking change applied to one panel.
type ZAction uint8

const (
	BringToFront ZAction = iota + 1
	SendToBack
	MoveForward
	MoveBackward
)

var zActionNames = [...]string{
	BringToFront: "bringToFront",
	SendToBack:   "sendToBack",
	MoveForward:  "moveForward",
	MoveBackward: "moveBackward",
}

func (a ZAction) String() string {
	if a < BringToFront || a > MoveBackward {
		return fmt.Sprintf("zaction(%d)", uint8(a))
	}
	return zActionNames[a]
}

// ParseZAction accepts the camelCase action names.
func ParseZAction(s string) (ZAction, error) {
	for a := BringToFront; a <= MoveBackward; a++ {
		if zActionNames[a] == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown z action %q", s)
}

func (a ZAction) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *ZAction) UnmarshalText(b []byte) error {
	v, err := ParseZAction(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// ReorderPanelsByZIndex applies action to the panel with id and renumbers
// every zIndex densely from 0 in stacking order. The input is returned
// untouched when id is missing or there are fewer than two panels.
func ReorderPanelsByZIndex(panels []domain.Panel, id string, action ZAction) []domain.Panel {
	if len(panels) < 2 {
		return panels
	}
	sorted := make([]domain.Panel, len(panels))
	copy(sorted, panels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].ZIndex < sorted[j].ZIndex })

	i := -1
	for k := range sorted {
		if sorted[k].ID == id {
			i = k
			break
		}
	}
	if i < 0 {
		return panels
	}

	last := len(sorted) - 1
	switch action {
	case BringToFront:
		if i < last {
			p := sorted[i]
			copy(sorted[i:], sorted[i+1:])
			sorted[last] = p
		}
	case SendToBack:
		if i > 0 {
			p := sorted[i]
			copy(sorted[1:i+1], sorted[:i])
			sorted[0] = p
		}
	case MoveForward:
		if i < last {
			sorted[i], sorted[i+1] = sorted[i+1], sorted[i]
		}
	case MoveBackward:
		if i > 0 {
			sorted[i], sorted[i-1] = sorted[i-1], sorted[i]
		}
	}

	for k := range sorted {
		sorted[k].ZIndex = k
	}
	return sorted
}
