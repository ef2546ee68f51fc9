// Package capacity turns a hospital resource snapshot into a stress index
// and allocates scarce beds across a scored patient population.
//
// stress.go computes the Hospital Stress Index (HSI, 0–1, 4 decimals):
// beds(28%) + ICU(28%) + ER load(24%) + operations(12%) + ventilators(8%).
// Status: Escalation ≥0.9, Warning ≥0.75, Normal otherwise. The ER freezes
// only when HSI is strictly above 0.9; an ER load of 0.85 or more redirects.
//
// beds.go ranks patients (score desc, emergency first, stable otherwise)
// and folds a bedState value through that order. The Moderate HOLD gate is
// computed once from the pre-allocation ratio.
//
// er.go routes each patient independently of bed allocation.
package capacity
