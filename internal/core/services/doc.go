// Package services implements the driving port interfaces.
// Services contain the pipeline's business logic: discovery, record
// building, sequence allocation and run orchestration, calling driven
// ports (adapters) for metadata, pose parsing and output writing.
package services
