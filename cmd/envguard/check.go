package main

import (
	"context"
	"io"

	"github.com/animalet/envguard/pkg/config"
	"github.com/animalet/envguard/pkg/envguard"
	"github.com/animalet/envguard/pkg/sources"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const masked = "********"

type checkOptions struct {
	configPath string
	reveal     bool
}

func newCheckCommand() *cobra.Command {
	opts := checkOptions{}

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Resolve the declared variables and print the result",
		Long: `Resolve every variable declared in the configuration file against the
process environment, or against the merged secret stores when any store
module is configured, and print the parsed values as YAML.

Values of variables marked unset are masked unless --reveal is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCheck(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Path to the declaration file (.yaml, .yml or .toml)")
	cmd.Flags().BoolVar(&opts.reveal, "reveal", false, "Print values of unset variables instead of masking them")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func runCheck(ctx context.Context, opts checkOptions, out io.Writer) error {
	cfg, err := config.NewConfig(opts.configPath)
	if err != nil {
		return err
	}

	vars, err := config.Get[config.Variables](cfg, "variables")
	if err != nil {
		return errors.Wrap(err, "failed to load variable declarations")
	}
	if vars == nil {
		return errors.New("variables configuration is required")
	}

	decls, err := vars.Declarations()
	if err != nil {
		return err
	}

	loaders, cleanup, err := readLoaders(ctx, cfg)
	defer cleanup()
	if err != nil {
		return err
	}

	var resolveOpts []envguard.Option
	if len(loaders) > 0 {
		src, err := sources.Merge(ctx, loaders...)
		if err != nil {
			return err
		}
		resolveOpts = append(resolveOpts, envguard.WithSource(src))
	}

	env, err := envguard.Resolve(decls, resolveOpts...)
	if err != nil {
		return err
	}

	values := env.Map()
	if !opts.reveal {
		for _, key := range vars.Unset() {
			if values[key] != nil {
				values[key] = masked
			}
		}
	}

	encoder := yaml.NewEncoder(out)
	defer func() {
		if err := encoder.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to flush output")
		}
	}()
	return errors.Wrap(encoder.Encode(values), "failed to write resolved environment")
}

// readLoaders builds a loader for every store module present in cfg, in merge
// order: dir, redis, aws, vault. The returned cleanup releases clients that
// hold connections.
func readLoaders(ctx context.Context, cfg *config.Config) ([]sources.Loader, func(), error) {
	var loaders []sources.Loader
	var closers []func()
	cleanup := func() {
		for _, c := range closers {
			c()
		}
	}

	dirCfg, err := config.Get[sources.DirConfig](cfg, "dir")
	if err != nil {
		return nil, cleanup, errors.Wrap(err, "failed to load secrets directory configuration")
	}
	if dirCfg != nil {
		loader, err := dirCfg.CreateClient()
		if err != nil {
			return nil, cleanup, errors.Wrap(err, "failed to create secrets directory loader")
		}
		loaders = append(loaders, loader)
	}

	redisCfg, err := config.Get[sources.RedisConfig](cfg, "redis")
	if err != nil {
		return nil, cleanup, errors.Wrap(err, "failed to load Redis configuration")
	}
	if redisCfg != nil {
		pool, err := redisCfg.CreateClient()
		if err != nil {
			return nil, cleanup, errors.Wrap(err, "failed to create Redis client")
		}
		closers = append(closers, func() {
			if err := pool.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close Redis pool")
			}
		})
		loaders = append(loaders, sources.NewRedisLoader(pool, redisCfg.Key))
	}

	awsCfg, err := config.Get[sources.AWSConfig](cfg, "aws")
	if err != nil {
		return nil, cleanup, errors.Wrap(err, "failed to load AWS configuration")
	}
	if awsCfg != nil {
		client, err := awsCfg.CreateClient(ctx)
		if err != nil {
			return nil, cleanup, errors.Wrap(err, "failed to create AWS Secrets Manager client")
		}
		loaders = append(loaders, sources.NewAWSLoader(client, awsCfg.SecretName, awsCfg.PlainKey))
	}

	vaultCfg, err := config.Get[sources.VaultConfig](cfg, "vault")
	if err != nil {
		return nil, cleanup, errors.Wrap(err, "failed to load Vault configuration")
	}
	if vaultCfg != nil {
		client, err := vaultCfg.CreateClient()
		if err != nil {
			return nil, cleanup, errors.Wrap(err, "failed to create Vault client")
		}
		loaders = append(loaders, sources.NewVaultLoader(client, vaultCfg.Path))
	}

	return loaders, cleanup, nil
}
