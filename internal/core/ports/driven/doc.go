// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the pipeline to function:
//
//   - MetadataSource: Reads embedded capture metadata from images
//   - PoseSource: Parses tabular pose tracks
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - PointCloudProbe: LAS header inspection for the run report
//   - RunLedger: Run history persistence. Without it, `history` is empty.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or detector package
package driven
