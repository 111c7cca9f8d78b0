// Package services implements the business logic layer of the calculator. It sits
// between the transports (the CLI and the HTTP view) and the poverty domain package.
//
// # Calculator
//
// CalculatorService owns the resident state. Each load reads an observations file,
// builds and validates the dataset, computes the persistence ratios and, when the
// dataset is valid, partitions the people into panels by span and sweeps the alpha
// weights over every valid panel. The outcome is published as an immutable Snapshot:
//
//	calc, err := services.NewCalculatorService(cfg, providers, logger)
//	snap, err := calc.LoadFile(ctx, "panel.csv")
//	if err != nil {
//	    // LOAD AppError, the calculator is back to the empty state
//	}
//	for _, e := range snap.Errors() {
//	    fmt.Println(e.Message)
//	}
//	paths, err := calc.ExportAll(ctx, "out", true)
//
// Loads are serialized. Readers never block a load for long: they take the current
// snapshot pointer and work on it.
//
// # Health
//
// HealthService reports liveness and summarizes the resident snapshot for the HTTP view.
package services
