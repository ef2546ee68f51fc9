// Package alerts implements the rule evaluation engine and webhook delivery
// for CarePulse alerting. Rules are evaluated against each stored analysis
// run, keyed by rule name and hospital id; webhooks are delivered to Teams,
// Slack or generic HTTP targets.
package alerts
