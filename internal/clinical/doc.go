// Package clinical scores individual patients.
//
// deviation.go holds the ten pure deviation functions, each mapping one
// measurement to a value in [0,1] with fixed breakpoints.
//
// score.go combines them into a 0–100 risk score:
// SpO2(15%) + BP(14%) + fever(10%) + sugar(10%) + hemoglobin(10%) +
// HR(9%) + RR(9%) + age(8%) + hydration(8%) + BMI(7%), then applies the
// chronic (×1.2), emergency (+10) and ICU (floor 75) adjustments in order.
//
// Severity thresholds: Critical ≥70, Moderate 40–69.99, Stable <40.
//
// recommend.go derives diet and room temperature. Nothing in this package
// logs or allocates beyond its return values.
package clinical
