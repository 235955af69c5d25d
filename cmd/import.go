/*
Copyright 2024 Blnk Finance Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	model2 "github.com/fjordsales/salesrecon/api/model"
	"github.com/fjordsales/salesrecon/model"
)

type importFlags struct {
	tenantID string
	form     model2.ImportForm
	async    bool
}

// buildImportRequest reads file and resolves the mapping the flags describe.
func buildImportRequest(ctx context.Context, app *salesreconInstance, flags importFlags, file string) (model.ImportRequest, error) {
	if flags.tenantID == "" {
		return model.ImportRequest{}, fmt.Errorf("--tenant is required")
	}
	if err := flags.form.ValidateImportForm(); err != nil {
		return model.ImportRequest{}, err
	}

	content, err := os.ReadFile(file)
	if err != nil {
		return model.ImportRequest{}, err
	}
	fileName := filepath.Base(file)

	req, err := flags.form.ToImportRequest(flags.tenantID, fileName, content)
	if err != nil {
		return model.ImportRequest{}, err
	}

	if flags.form.Template != "" {
		preview, err := app.svc.Preview(content, fileName, flags.form.HasHeaderRow)
		if err != nil {
			return model.ImportRequest{}, err
		}
		req.Mapping, err = app.svc.ApplyTemplate(ctx, flags.tenantID, flags.form.Template, preview.ColumnCount)
		if err != nil {
			return model.ImportRequest{}, err
		}
	}
	return req, nil
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		log.Fatalf("Error printing result: %v\n", err)
	}
	fmt.Println(string(data))
}

// importCommands returns the command that imports one file for one period.
func importCommands(app *salesreconInstance) *cobra.Command {
	var flags importFlags

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "import a sales file for a period",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()

			req, err := buildImportRequest(ctx, app, flags, args[0])
			if err != nil {
				log.Fatalf("Error preparing import: %v", err)
			}

			if flags.async {
				taskID, err := app.svc.EnqueueImport(ctx, req)
				if err != nil {
					log.Fatalf("Error queueing import: %v", err)
				}
				printJSON(map[string]string{"task_id": taskID})
				return
			}

			result, err := app.svc.RunImport(ctx, req)
			if err != nil {
				log.Fatalf("Error importing: %v", err)
			}
			printJSON(result)
		},
	}

	cmd.Flags().StringVar(&flags.tenantID, "tenant", "", "tenant to import for")
	cmd.Flags().StringVar(&flags.form.Period, "period", "", "period as YYYY-MM or YYYY-Www")
	cmd.Flags().StringVar(&flags.form.Mapping, "mapping", "", `column mapping as JSON, e.g. {"0":"org_nr","3":"total_sales"}`)
	cmd.Flags().StringVar(&flags.form.Template, "template", "", "name of a saved mapping template")
	cmd.Flags().BoolVar(&flags.form.HasHeaderRow, "header", true, "the first row holds column headers")
	cmd.Flags().BoolVar(&flags.async, "async", false, "queue the import for the workers instead of running it")

	return cmd
}
