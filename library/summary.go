// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xeonx/timeago"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Summary returns a markdown description of the library: the configured
// database and every stored build, most recent first.
func (myLibrary *Library) Summary(ctx context.Context) (string, error) {
	p := message.NewPrinter(language.English)
	builder := strings.Builder{}

	builder.WriteString("# Factor Research Library\n\n")
	builder.WriteString(fmt.Sprintf("Database: %s\n\n", myLibrary.DBUrl))
	builder.WriteString("## Builds\n\n")

	builds, err := myLibrary.Builds(ctx)
	if err != nil {
		return "", err
	}

	if len(builds) == 0 {
		builder.WriteString("No panels have been built yet. Run `fmdata build` first.\n")
		return builder.String(), nil
	}

	for _, build := range builds {
		age := timeago.English.Format(build.EndTime)
		duration := build.EndTime.Sub(build.StartTime).Round(time.Second)

		builder.WriteString(p.Sprintf("  * %s - %s built %s (took %s) [%s]\n",
			build.RangeStart.Format("Jan 2006"), build.RangeEnd.Format("Jan 2006"),
			age, duration, build.ID.String()[:6]))
	}

	return builder.String(), nil
}
