// Package generator produces synthetic flock sensor series for the dashboard.
//
// Generate(params, now, noise) draws WindowSize hourly readings ending at
// now-1h, oldest first. Each channel is Mean + StdDev*noise with the noise
// drawn channel by channel (all water, then all activity, then all
// temperature). The last Anomaly.TailLen samples are then attenuated
// (water, activity) and warmed (temperature) to model a gradual decline,
// and finally water and activity are floored at zero.
//
// Randomness is injected through Noise. NewSeeded returns a reproducible
// source for tests and for the optional `generator.seed` config value;
// ZeroNoise makes every channel sit exactly on its mean.
package generator
