/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "Manage the monitored host set",
	Long: `List or edit the set of hosts the uptime monitor pings on every tick.
Edits are persisted to the configuration file and picked up by a running
agent on its next restart (a live agent can be edited via the HTTP API).`,
}

var hostsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List monitored hosts",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if len(cfg.Hosts) == 0 {
			fmt.Println("No hosts configured.")
			return nil
		}
		for _, h := range cfg.Hosts {
			fmt.Println(h)
		}
		return nil
	},
}

var hostsAddCmd = &cobra.Command{
	Use:   "add <host>",
	Short: "Add a host to the monitored set",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		host := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		for _, h := range cfg.Hosts {
			if h == host {
				fmt.Printf("%s is already monitored.\n", host)
				return nil
			}
		}

		cfg.Hosts = append(cfg.Hosts, host)
		if err := cfg.Save(configPath); err != nil {
			return fmt.Errorf("save host set: %w", err)
		}

		fmt.Printf("Added %s (%d hosts monitored).\n", host, len(cfg.Hosts))
		return nil
	},
}

var hostsRemoveCmd = &cobra.Command{
	Use:   "remove <host>",
	Short: "Remove a host from the monitored set",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		host := args[0]

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		kept := cfg.Hosts[:0]
		removed := false
		for _, h := range cfg.Hosts {
			if h == host {
				removed = true
				continue
			}
			kept = append(kept, h)
		}
		if !removed {
			return fmt.Errorf("host not monitored: %s", host)
		}

		cfg.Hosts = kept
		if err := cfg.Save(configPath); err != nil {
			return fmt.Errorf("save host set: %w", err)
		}

		fmt.Printf("Removed %s (%d hosts monitored).\n", host, len(cfg.Hosts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hostsCmd)
	hostsCmd.AddCommand(hostsListCmd)
	hostsCmd.AddCommand(hostsAddCmd)
	hostsCmd.AddCommand(hostsRemoveCmd)
}
