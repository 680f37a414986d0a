package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"schoollicense.app/renewal/internal/app"
	"schoollicense.app/renewal/internal/config"
	"schoollicense.app/renewal/internal/logger"
	"schoollicense.app/renewal/internal/renewal"
	"schoollicense.app/renewal/internal/version"
	"schoollicense.app/renewal/models"
	"schoollicense.app/renewal/storage"
)

var (
	renewSchoolCode string
	renewPlan       string
	renewAmount     float64
	seedFile        string
)

var renewCmd = &cobra.Command{
	Use:   "renew",
	Short: "Renew a school's license as a manual trigger",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := manualBody(renewSchoolCode, renewPlan, renewAmount, cmd.Flags().Changed("amount"))
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			out := a.Service.Process(cmd.Context(), renewal.Trigger{
				Origin: renewal.OriginManual,
				Body:   body,
			})

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out.Body); err != nil {
				return err
			}
			if out.Status >= 400 {
				return fmt.Errorf("renewal failed with status %d", out.Status)
			}
			return nil
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load license records from a JSON file into a local store",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := readSeedFile(seedFile)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app.App) error {
			n, err := seed(cmd.Context(), a.Store, records)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d licenses into %s store\n", n, a.Config.StoreDriver)
			return nil
		})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	renewCmd.Flags().StringVar(&renewSchoolCode, "school-code", "", "school code to renew")
	renewCmd.Flags().StringVar(&renewPlan, "plan", "", "plan label used when no amount is given (Sessional, otherwise Termly)")
	renewCmd.Flags().Float64Var(&renewAmount, "amount", 0, "amount paid; overrides the plan")
	_ = renewCmd.MarkFlagRequired("school-code")

	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "JSON file holding an array of license records")
	_ = seedCmd.MarkFlagRequired("file")
}

func withApp(ctx context.Context, fn func(a *app.App) error) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func manualBody(schoolCode, plan string, amount float64, amountSet bool) ([]byte, error) {
	payload := map[string]interface{}{
		"schoolCode": schoolCode,
	}
	if plan != "" {
		payload["plan"] = plan
	}
	if amountSet {
		payload["amount"] = amount
	}
	return json.Marshal(payload)
}

func readSeedFile(path string) ([]models.LicenseRecord, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var records []models.LicenseRecord
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return records, nil
}

func seed(ctx context.Context, st storage.Store, records []models.LicenseRecord) (int, error) {
	seeder, ok := st.(storage.Seeder)
	if !ok {
		return 0, fmt.Errorf("store %T cannot be seeded", st)
	}
	for i := range records {
		if err := seeder.SaveLicense(ctx, &records[i]); err != nil {
			return i, fmt.Errorf("failed to save license %q: %w", records[i].SchoolCode, err)
		}
		logger.Debug("License seeded", map[string]interface{}{
			"school_code": records[i].SchoolCode,
			"license_id":  records[i].ID,
		})
	}
	return len(records), nil
}
