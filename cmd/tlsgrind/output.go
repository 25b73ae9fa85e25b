package main

import (
	"fmt"
	"strconv"

	"github.com/pterm/pterm"

	"github.com/hakim/tlsgrind/internal/aggregate"
)

// printFrequencyTable renders a ranked name/quantity table to the console.
func printFrequencyTable(title string, table aggregate.FrequencyTable) error {
	pterm.DefaultSection.Println(title)

	if len(table) == 0 {
		pterm.Warning.Println("None found.")
		return nil
	}

	data := pterm.TableData{{"#", "Name", "Quantity"}}
	for i, e := range table {
		data = append(data, []string{strconv.Itoa(i + 1), e.Name, strconv.Itoa(e.Quantity)})
	}

	if err := pterm.DefaultTable.
		WithHasHeader(true).
		WithBoxed(false).
		WithData(data).
		Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}
