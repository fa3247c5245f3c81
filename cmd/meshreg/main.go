// Package main contains a command to register a moving surface onto a fixed surface.
package main

import (
	"context"

	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"go.viam.com/meshreg/mesh"
	"go.viam.com/meshreg/registration"
)

var logger = golog.NewDevelopmentLogger("meshreg")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	FixedFile     string `flag:"0,required,usage=fixed surface file (.ply or .las)"`
	MovingFile    string `flag:"1,required,usage=moving surface file (.ply or .las)"`
	OutFile       string `flag:"out,usage=write the deformed moving surface to this PLY file"`
	MaxIterations int    `flag:"iter,default=5000,usage=maximum optimizer evaluations"`
	SpatialIndex  bool   `flag:"kdtree,usage=use a k-d tree for correspondence search"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	fixed, err := mesh.NewFromFile(argsParsed.FixedFile, logger)
	if err != nil {
		return err
	}
	moving, err := mesh.NewFromFile(argsParsed.MovingFile, logger)
	if err != nil {
		return err
	}
	logger.Infow("loaded surfaces", "fixed", fixed.Size(), "moving", moving.Size())

	cfg := registration.DefaultConfig()
	cfg.MaxIterations = argsParsed.MaxIterations
	cfg.UseSpatialIndex = argsParsed.SpatialIndex

	result, err := registration.RegisterMeshes(ctx, fixed, moving, cfg, logger)
	if err != nil {
		return err
	}
	logger.Infow("registered surfaces",
		"score", result.Score,
		"evaluations", result.Evaluations,
		"converged", result.Converged,
	)

	if argsParsed.OutFile != "" {
		deformed, err := registration.DeformMesh(moving, result.Field)
		if err != nil {
			return err
		}
		if err := mesh.WritePLYFile(argsParsed.OutFile, deformed); err != nil {
			return err
		}
		logger.Infow("wrote deformed surface", "file", argsParsed.OutFile)
	}
	return nil
}
