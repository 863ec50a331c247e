package main

import (
	"fmt"
	"os"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/dudu/facemesh/internal/inference"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: modelinfo <model.onnx> [libonnxruntime path]")
		fmt.Println("\nPrints the inputs, outputs and metadata of an ONNX model.")
		os.Exit(1)
	}

	modelPath := os.Args[1]
	libPath := ""
	if len(os.Args) > 2 {
		libPath = os.Args[2]
	}

	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		fmt.Printf("Error: File not found: %s\n", modelPath)
		os.Exit(1)
	}

	fmt.Println("Initializing ONNX Runtime...")
	if err := inference.Initialize(libPath); err != nil {
		fmt.Printf("Error: %v\n", err)
		fmt.Printf("\nPass the shared library path as the second argument (default: %s)\n", inference.DefaultLibraryPath())
		os.Exit(1)
	}
	defer inference.Shutdown()

	inputs, outputs, err := inference.ModelInfo(modelPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nModel: %s\n", modelPath)
	printInfo("Inputs", inputs)
	printInfo("Outputs", outputs)

	metadata, err := ort.GetModelMetadata(modelPath)
	if err != nil {
		fmt.Printf("\nMetadata unavailable: %v\n", err)
		return
	}
	defer metadata.Destroy()

	fmt.Println("\nMetadata:")
	if producer, err := metadata.GetProducerName(); err == nil {
		fmt.Printf("  Producer: %s\n", producer)
	}
	if version, err := metadata.GetVersion(); err == nil {
		fmt.Printf("  Version: %d\n", version)
	}
	if domain, err := metadata.GetDomain(); err == nil {
		fmt.Printf("  Domain: %s\n", domain)
	}
	if desc, err := metadata.GetDescription(); err == nil {
		fmt.Printf("  Description: %s\n", desc)
	}
}

func printInfo(title string, infos []ort.InputOutputInfo) {
	fmt.Printf("\n%s (%d):\n", title, len(infos))
	for _, info := range infos {
		fmt.Printf("  %s: shape=%v, type=%v\n", info.Name, info.Dimensions, info.DataType)
	}
}
