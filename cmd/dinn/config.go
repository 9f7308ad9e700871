// Copyright © 2021 AMIS Technologies
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config binds the dataset paths and network topology a run reads,
// following the teacher's example/config.go pattern of one flat
// struct filled in by viper from flags and DINN_-prefixed env vars.
type Config struct {
	WeightsFile string `mapstructure:"weights-file"`
	BiasesFile  string `mapstructure:"biases-file"`
	ImagesFile  string `mapstructure:"images-file"`
	LabelsFile  string `mapstructure:"labels-file"`
	Topology    []int  `mapstructure:"topology"`
	NumImages   int    `mapstructure:"num-images"`
	ModulusBits int    `mapstructure:"modulus-bits"`
}

// defineFlags registers cmd's dataset/topology flags. Defaults point
// at the small [4,3,2] testdata fixture shipped with this module (see
// testdata/README); running the full apps/dinn.rs topology takes
// --topology/--num-images/--*-file overrides.
func defineFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("weights-file", "cmd/dinn/testdata/weights.txt", "newline-delimited decimal weight file")
	flags.String("biases-file", "cmd/dinn/testdata/biases.txt", "newline-delimited decimal bias file")
	flags.String("images-file", "cmd/dinn/testdata/images.txt", "newline-delimited decimal image file")
	flags.String("labels-file", "cmd/dinn/testdata/labels.txt", "newline-delimited decimal label file")
	flags.IntSlice("topology", []int{4, 3, 2}, "layer sizes, input first")
	flags.Int("num-images", 4, "number of images to evaluate")
	flags.Int("modulus-bits", 10, "CRT modulus width in bits (apps/dinn.rs uses 10)")
}

func loadConfig(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	flags := cmd.Flags()
	v.BindPFlag("weights-file", flags.Lookup("weights-file"))
	v.BindPFlag("biases-file", flags.Lookup("biases-file"))
	v.BindPFlag("images-file", flags.Lookup("images-file"))
	v.BindPFlag("labels-file", flags.Lookup("labels-file"))
	v.BindPFlag("topology", flags.Lookup("topology"))
	v.BindPFlag("num-images", flags.Lookup("num-images"))
	v.BindPFlag("modulus-bits", flags.Lookup("modulus-bits"))
	v.SetEnvPrefix("dinn")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
