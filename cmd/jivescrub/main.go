package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/jivescrub/internal/audio"
	"github.com/linuxmatters/jivescrub/internal/capture"
	"github.com/linuxmatters/jivescrub/internal/cli"
	"github.com/linuxmatters/jivescrub/internal/config"
	"github.com/linuxmatters/jivescrub/internal/logging"
	"github.com/linuxmatters/jivescrub/internal/mains"
	"github.com/linuxmatters/jivescrub/internal/processor"
	"github.com/linuxmatters/jivescrub/internal/ui"
)

var (
	version = "0.1.0"
)

// captureFramesPerBuffer sets the capture granularity: one level update
// every 64 ms at the 16 kHz default rate.
const captureFramesPerBuffer = 1024

// CLI defines the command-line interface
type CLI struct {
	Version     bool     `short:"v" help:"Show version information"`
	Config      string   `short:"c" type:"path" help:"Path to YAML preset file (optional)"`
	Analyze     bool     `short:"a" help:"Measure the recording and print findings without cleaning"`
	Auto        bool     `help:"Adapt gate strength, floor and gain to the measured noise profile"`
	Report      bool     `help:"Write a markdown cleaning report next to each output"`
	Record      bool     `short:"r" help:"Capture a segment from the default input device and clean it"`
	Duration    float64  `short:"d" default:"10" help:"Capture length in seconds for --record"`
	ListDevices bool     `help:"List capture devices and exit"`
	Lowcut      float64  `help:"Override the band-pass lower edge in Hz"`
	Highcut     float64  `help:"Override the band-pass upper edge in Hz"`
	Gain        float64  `help:"Override the linear gain applied after filtering"`
	Files       []string `arg:"" name:"files" help:"Audio files to clean" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("jivescrub"),
		kong.Description("Speech recording cleaner"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	if cliArgs.ListDevices {
		listCaptureDevices()
		os.Exit(0)
	}

	chain, err := buildChainConfig(cliArgs)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	if cliArgs.Record {
		if len(cliArgs.Files) > 0 {
			cli.PrintError("--record captures from the input device and cannot take files")
			os.Exit(1)
		}
		if cliArgs.Duration <= 0 {
			cli.PrintError("--duration must be positive")
			os.Exit(1)
		}
		runRecord(chain, cliArgs)
		return
	}

	// Validate input
	if len(cliArgs.Files) == 0 {
		cli.PrintError("No input files specified")
		ctx.PrintUsage(false)
		os.Exit(1)
	}

	if cliArgs.Analyze {
		runAnalyze(chain, cliArgs.Files)
		return
	}

	runProcess(chain, cliArgs)
}

// buildChainConfig merges the preset file (or defaults) with flag overrides
// and revalidates, so a bad --lowcut fails before any audio is touched.
func buildChainConfig(cliArgs *CLI) (*processor.ChainConfig, error) {
	preset := config.Default()
	if cliArgs.Config != "" {
		loaded, err := config.Load(cliArgs.Config)
		if err != nil {
			return nil, err
		}
		preset = loaded
	}

	if cliArgs.Lowcut > 0 {
		preset.Pipeline.LowCut = cliArgs.Lowcut
	}
	if cliArgs.Highcut > 0 {
		preset.Pipeline.HighCut = cliArgs.Highcut
	}
	if cliArgs.Gain > 0 {
		preset.Pipeline.Gain = cliArgs.Gain
	}
	if cliArgs.Auto {
		preset.Pipeline.AutoTune = true
	}

	if err := preset.Validate(); err != nil {
		return nil, err
	}
	return preset.ChainConfig(), nil
}

// runProcess cleans each input file under the Bubbletea UI, one background
// worker feeding progress messages into the program.
func runProcess(chain *processor.ChainConfig, cliArgs *CLI) {
	// Open debug log file
	debugLog, _ := os.Create("jivescrub-debug.log")
	defer debugLog.Close()
	log := func(format string, args ...interface{}) {
		if debugLog != nil {
			fmt.Fprintf(debugLog, format+"\n", args...)
		}
	}

	// Create the Bubbletea UI model
	model := ui.NewModel(cliArgs.Files)

	// Start the TUI
	p := tea.NewProgram(model, tea.WithAltScreen())

	// Start processing in background
	go func() {
		for i, inputPath := range cliArgs.Files {
			fileStartTime := time.Now()

			// Signal file start
			log("[MAIN] Sending FileStartMsg for file %d: %s", i, inputPath)
			p.Send(ui.FileStartMsg{
				FileIndex: i,
				FileName:  inputPath,
			})

			// Create progress handler
			ph := &progressHandler{
				p:   p,
				log: log,
			}

			// Each file gets its own config copy: auto-tuning adjusts the
			// gate and gain per segment and must not leak between files.
			cfg := *chain

			log("[MAIN] Starting ProcessFile for %s", inputPath)
			result, err := processor.ProcessFile(inputPath, &cfg, ph.callback)
			if err != nil {
				log("[MAIN] ProcessFile failed: %v", err)
				p.Send(ui.FileCompleteMsg{
					FileIndex: i,
					Error:     err,
				})
				continue
			}

			// Generate cleaning report if --report flag is set
			if cliArgs.Report {
				reportData := logging.ReportData{
					Result:    result,
					StartTime: fileStartTime,
					EndTime:   time.Now(),
				}
				if err := logging.GenerateReport(reportData); err != nil {
					log("[MAIN] Failed to generate report: %v", err)
				}
			}

			// Signal file complete with actual data
			log("[MAIN] Sending FileCompleteMsg for file %d", i)
			p.Send(completionMsg(i, result))
		}

		// Signal all complete
		log("[MAIN] Sending AllCompleteMsg")
		p.Send(ui.AllCompleteMsg{})
	}()

	// Run the program
	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		os.Exit(1)
	}
}

// runRecord captures a segment from the default input device and cleans it.
// The capture appears in the UI as a pseudo-file whose first stage is the
// recording itself; the conditioning stages follow as for a file.
func runRecord(chain *processor.ChainConfig, cliArgs *CLI) {
	stamp := time.Now().Format("20060102-150405")
	pseudoName := fmt.Sprintf("capture-%s.wav", stamp)
	outputPath := fmt.Sprintf("capture-%s-processed.wav", stamp)

	debugLog, _ := os.Create("jivescrub-debug.log")
	defer debugLog.Close()
	log := func(format string, args ...interface{}) {
		if debugLog != nil {
			fmt.Fprintf(debugLog, format+"\n", args...)
		}
	}

	model := ui.NewModel([]string{pseudoName})
	p := tea.NewProgram(model, tea.WithAltScreen())

	go func() {
		fileStartTime := time.Now()
		p.Send(ui.FileStartMsg{FileIndex: 0, FileName: pseudoName})

		result, err := captureAndClean(p, chain, cliArgs.Duration, outputPath, log)
		if err != nil {
			log("[MAIN] Capture failed: %v", err)
			p.Send(ui.FileCompleteMsg{FileIndex: 0, Error: err})
			p.Send(ui.AllCompleteMsg{})
			return
		}
		result.InputPath = pseudoName

		if cliArgs.Report {
			reportData := logging.ReportData{
				Result:    result,
				StartTime: fileStartTime,
				EndTime:   time.Now(),
			}
			if err := logging.GenerateReport(reportData); err != nil {
				log("[MAIN] Failed to generate report: %v", err)
			}
		}

		p.Send(completionMsg(0, result))
		p.Send(ui.AllCompleteMsg{})
	}()

	if _, err := p.Run(); err != nil {
		cli.PrintError(fmt.Sprintf("UI error: %v", err))
		os.Exit(1)
	}
}

// captureAndClean records for the requested duration, finalises the
// accumulated frames into a bounded segment and runs the conditioning chain
// on it. Capture progress is reported as stage 1 ("Recording").
func captureAndClean(p *tea.Program, chain *processor.ChainConfig, seconds float64, outputPath string, log func(string, ...interface{})) (*processor.Result, error) {
	acc := capture.NewAccumulator()
	rec, err := capture.NewRecorder(acc, chain.CaptureRate, captureFramesPerBuffer)
	if err != nil {
		return nil, err
	}
	defer rec.Close()

	log("[MAIN] Recording %.1fs at %d Hz", seconds, chain.CaptureRate)
	total := seconds * float64(chain.CaptureRate)
	err = rec.Record(seconds, func(levelDb float64, captured int) {
		progress := float64(captured) / total
		if progress > 1 {
			progress = 1
		}
		p.Send(ui.ProgressMsg{
			Stage:     1,
			StageName: "Recording",
			Progress:  progress,
			Level:     levelDb,
		})
	})
	if err != nil {
		return nil, err
	}

	truncated := chain.MaxSegmentSeconds > 0 && acc.Duration(chain.CaptureRate) > chain.MaxSegmentSeconds

	wave, err := acc.Finalize(chain.CaptureRate, chain.MinSegmentSeconds, chain.MaxSegmentSeconds)
	if err != nil {
		return nil, err
	}

	cfg := *chain
	ph := &progressHandler{p: p, log: log}
	result, err := processor.ProcessSegment(wave, outputPath, &cfg, ph.callback)
	if err != nil {
		return nil, err
	}
	result.Truncated = truncated
	return result, nil
}

// runAnalyze measures each file and prints the findings without touching
// the audio. The spinner UI runs inline so the results stay in the
// scrollback underneath it.
func runAnalyze(chain *processor.ChainConfig, files []string) {
	failures := 0

	for _, path := range files {
		model := ui.NewAnalysisModel()
		p := tea.NewProgram(model)

		go func(path string) {
			p.Send(ui.AnalysisStartMsg{FileName: filepath.Base(path), FilePath: path})

			wave, err := audio.DecodeFileAt(path, chain.CaptureRate)
			if err != nil {
				p.Send(ui.AnalysisCompleteMsg{
					Error: fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err),
				})
				return
			}
			p.Send(ui.AnalysisProgressMsg{Progress: 0.5})

			m := processor.AnalyzeWaveform(wave.Samples, wave.SampleRate, mains.Frequency())
			p.Send(ui.AnalysisProgressMsg{Progress: 0.9, Level: m.RMSLevel})

			// Preview the effective settings: --auto shows what the
			// tuner would pick for this recording.
			cfg := *chain
			if cfg.AutoTune {
				processor.AdaptConfig(&cfg, m)
			}
			p.Send(ui.AnalysisCompleteMsg{Measurements: m, Config: &cfg})
		}(path)

		final, err := p.Run()
		if err != nil {
			cli.PrintError(fmt.Sprintf("UI error: %v", err))
			os.Exit(1)
		}

		result, ok := final.(ui.AnalysisModel)
		if !ok || !result.Done {
			// User quit before the analysis finished
			break
		}
		if result.Error != nil {
			cli.PrintError(result.Error.Error())
			failures++
			continue
		}

		logging.DisplayAnalysisResults(os.Stdout, path, result.Measurements, result.Config)
	}

	if failures > 0 {
		os.Exit(1)
	}
}

// listCaptureDevices prints the available input devices.
func listCaptureDevices() {
	devices, err := capture.ListDevices()
	if err != nil {
		cli.PrintError(fmt.Sprintf("Failed to list capture devices: %v", err))
		os.Exit(1)
	}

	if len(devices) == 0 {
		fmt.Println("No capture devices found")
		return
	}

	fmt.Println("Capture devices:")
	for _, d := range devices {
		marker := " "
		if d.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s [%d] %s (%d ch, %.0f Hz)\n", marker, d.Index, d.Name, d.Channels, d.SampleRate)
	}
	fmt.Println("(* = default input)")
}

// completionMsg summarises a result for the UI.
func completionMsg(index int, result *processor.Result) ui.FileCompleteMsg {
	return ui.FileCompleteMsg{
		FileIndex:       index,
		PeakBefore:      result.Before.PeakLevel,
		PeakAfter:       result.After.PeakLevel,
		NoiseFloorAfter: result.After.NoiseFloor,
		NoiseReduced:    result.Before.NoiseFloor - result.After.NoiseFloor,
		OutputPath:      result.OutputPath,
		Truncated:       result.Truncated,
	}
}

// progressHandler handles progress updates from the processor
type progressHandler struct {
	p   *tea.Program
	log func(string, ...interface{})
}

func (ph *progressHandler) callback(stage int, stageName string, progress float64, level float64, measurements *processor.AudioMeasurements) {
	ph.log("[MAIN] Sending ProgressMsg: Stage %d (%s), Progress %.1f%%, Level %.1f dBFS", stage, stageName, progress*100, level)

	ph.p.Send(ui.ProgressMsg{
		Stage:        stage,
		StageName:    stageName,
		Progress:     progress,
		Level:        level,
		Measurements: measurements,
	})
}
