package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sarchlab/vmsim/mem/vm"
	"github.com/sarchlab/vmsim/mem/vm/mmu"
	"github.com/sarchlab/vmsim/mem/vm/swap"
	"github.com/sarchlab/vmsim/workload"
)

// Environment variables that override the memory settings.
const (
	envPageSize                = "VMSIM_PAGE_SIZE"
	envPhysicalMemorySize      = "VMSIM_PHYSICAL_MEMORY_SIZE"
	envVirtualAddressSpaceSize = "VMSIM_VIRTUAL_ADDRESS_SPACE_SIZE"
	envReservedPageTableFrames = "VMSIM_RESERVED_PAGE_TABLE_FRAMES"
	envSwapCodec               = "VMSIM_SWAP_CODEC"
	envSwapPolicy              = "VMSIM_SWAP_POLICY"
)

// settings is everything needed to build a memory manager.
type settings struct {
	Config     vm.Config `yaml:"config"`
	SwapCodec  string    `yaml:"swap_codec"`
	SwapPolicy string    `yaml:"swap_policy"`

	codec  swap.Codec
	policy mmu.SwapPolicy
}

type sizeSetting struct {
	flag  string
	env   string
	usage string
	field func(cfg *vm.Config) *uint64
}

var sizeSettings = []sizeSetting{
	{
		flag:  "page-size",
		env:   envPageSize,
		usage: "number of words in a page",
		field: func(cfg *vm.Config) *uint64 { return &cfg.PageSize },
	},
	{
		flag:  "physical-memory-size",
		env:   envPhysicalMemorySize,
		usage: "number of words of physical memory",
		field: func(cfg *vm.Config) *uint64 { return &cfg.PhysicalMemorySize },
	},
	{
		flag:  "virtual-address-space-size",
		env:   envVirtualAddressSpaceSize,
		usage: "number of words of the virtual address space of a process",
		field: func(cfg *vm.Config) *uint64 {
			return &cfg.VirtualAddressSpaceSize
		},
	},
	{
		flag:  "reserved-page-table-frames",
		env:   envReservedPageTableFrames,
		usage: "number of frames reserved for page tables",
		field: func(cfg *vm.Config) *uint64 {
			return &cfg.ReservedPageTableFrames
		},
	},
}

// addMemoryFlags adds the flags read by loadSettings.
func addMemoryFlags(cmd *cobra.Command) {
	for _, s := range sizeSettings {
		cmd.Flags().Uint64(s.flag, 0, s.usage+" (env "+s.env+")")
	}

	cmd.Flags().String("swap-codec", "",
		"how swapped pages are kept: none, snappy or lz4 (env "+
			envSwapCodec+")")
	cmd.Flags().String("swap-policy", "",
		"what happens to the swapped pages of terminated processes: "+
			"purge or retain (env "+envSwapPolicy+")")
	cmd.Flags().String("env-file", ".env",
		"file with environment variables, ignored if missing")
}

// loadSettings merges the memory settings. Flags take precedence over the
// environment, which takes precedence over the workload, which takes
// precedence over the defaults.
func loadSettings(cmd *cobra.Command, w *workload.Workload) (settings, error) {
	if err := loadEnvFile(cmd); err != nil {
		return settings{}, err
	}

	s := settings{
		Config:     vm.DefaultConfig(),
		SwapCodec:  swap.CodecNone.String(),
		SwapPolicy: mmu.SwapPolicyPurge.String(),
	}

	if w != nil {
		s.Config = w.Memory.ApplyTo(s.Config)
		s.SwapCodec = orDefault(w.Memory.SwapCodec, s.SwapCodec)
		s.SwapPolicy = orDefault(w.Memory.SwapPolicy, s.SwapPolicy)
	}

	for _, size := range sizeSettings {
		field := size.field(&s.Config)

		if v, set := os.LookupEnv(size.env); set {
			parsed, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return settings{}, fmt.Errorf("%s: %w", size.env, err)
			}

			*field = parsed
		}

		if cmd.Flags().Changed(size.flag) {
			*field, _ = cmd.Flags().GetUint64(size.flag)
		}
	}

	s.SwapCodec = override(cmd, "swap-codec", envSwapCodec, s.SwapCodec)
	s.SwapPolicy = override(cmd, "swap-policy", envSwapPolicy, s.SwapPolicy)

	return s.parse()
}

func (s settings) parse() (settings, error) {
	if err := s.Config.Validate(); err != nil {
		return settings{}, err
	}

	codec, err := swap.ParseCodec(s.SwapCodec)
	if err != nil {
		return settings{}, err
	}

	policy, err := mmu.ParseSwapPolicy(s.SwapPolicy)
	if err != nil {
		return settings{}, err
	}

	s.codec = codec
	s.policy = policy

	return s, nil
}

func loadEnvFile(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		return nil
	}

	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("env-file") {
		return nil
	}

	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	return nil
}

func override(cmd *cobra.Command, flag, env, value string) string {
	if v, set := os.LookupEnv(env); set && v != "" {
		value = v
	}

	if cmd.Flags().Changed(flag) {
		value, _ = cmd.Flags().GetString(flag)
	}

	return value
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}

func (s settings) builder() mmu.Builder {
	return mmu.MakeBuilder().
		WithConfig(s.Config).
		WithSwapCodec(s.codec).
		WithSwapPolicy(s.policy)
}
