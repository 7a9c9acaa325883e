// Package alerts turns the latest health score into an alert state and
// optionally notifies external webhooks.
//
// Evaluate(score, threshold) is the stateless evaluator used on every
// refresh: a score strictly below the threshold is Critical, anything else
// is Normal. Critical states carry the fixed recommended-action list.
//
// Notifier is the optional delivery layer on top: it watches successive
// refresh results, fires on the built-in critical rule plus any configured
// threshold rules, applies a cooldown, and posts to Slack, Teams or generic
// HTTP webhooks.
package alerts
