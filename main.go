// SPDX-License-Identifier: MPL-2.0

package main

import cmd "autokit-cli/cmd/autokit"

func main() {
	cmd.Execute()
}
