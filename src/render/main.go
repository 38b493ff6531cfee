package main

import (
	"flag"
	"fmt"
	"io/ioutil"
	"os"

	goaudio "github.com/go-audio/audio"

	"github.com/cwbudde/wav"
	"github.com/jinjor/desktop-ambient/src/audio"
)

func main() {
	chartPath := flag.String("chart", "chart.json", "Natal chart JSON file path")
	output := flag.String("output", "output.wav", "Output WAV file path")
	flag.Parse()

	chartData, err := ioutil.ReadFile(*chartPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading chart %q: %v\n", *chartPath, err)
		os.Exit(1)
	}

	samples, err := audio.RenderNatal(chartData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error rendering: %v\n", err)
		os.Exit(1)
	}

	file, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating output file: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	numChannels := 2
	encoder := wav.NewEncoder(file, audio.SampleRate, 16, numChannels, 1)
	defer encoder.Close()

	buf := &goaudio.Float32Buffer{
		Format: &goaudio.Format{
			SampleRate:  audio.SampleRate,
			NumChannels: numChannels,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	if err := encoder.Write(buf); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Successfully wrote %s (%d frames)\n", *output, len(samples)/numChannels)
}
