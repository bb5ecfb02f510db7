package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(venuesCmd)
}

var venuesCmd = &cobra.Command{
	Use:   "venues",
	Short: "List the venues that can be scraped",
	Long: `List the venue catalog: the built-in venues plus any override in
.toppaper/venues.yml of the workspace.`,
	Args: cobra.NoArgs,
	RunE: runVenues,
}

// VenueInfo describes one catalog entry.
type VenueInfo struct {
	Code   string `json:"code"`
	Family string `json:"family"`
	Name   string `json:"name"`
	Years  []int  `json:"years,omitempty"` // editions with a known volume, if the venue needs one
}

func runVenues(cmd *cobra.Command, args []string) error {
	ws := mustResolveWorkspace()
	catalog := mustLoadCatalog(ws)

	var infos []VenueInfo
	for _, v := range catalog.Venues() {
		info := VenueInfo{Code: v.Code, Family: v.Family, Name: v.Name}
		for year := range v.Volumes {
			info.Years = append(info.Years, year)
		}
		sort.Ints(info.Years)
		infos = append(infos, info)
	}

	if humanOutput {
		for _, info := range infos {
			fmt.Printf("%-8s %-12s %s\n", info.Code, info.Family, info.Name)
			if len(info.Years) > 0 {
				fmt.Printf("%-8s %-12s editions %d-%d\n", "", "", info.Years[0], info.Years[len(info.Years)-1])
			}
		}
	} else {
		outputJSON(infos)
	}
	return nil
}
