package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"street-network/algo"
	"street-network/output"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write node and edge tables to csv, json, parquet, kafka or console",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		g, err := downloadGraph(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		if err := addTravelTimes(g, cfg); err != nil {
			return err
		}

		nodes, edges, err := algo.ToTables(g)
		if err != nil {
			return err
		}

		runID := output.NewRunID()
		dest, err := output.NewDestination(cfg.Output, runID)
		if err != nil {
			return err
		}
		if err := output.WriteTables(dest, runID, nodes, edges); err != nil {
			_ = dest.Close()
			return err
		}
		if err := output.Finish(cmd.Context(), dest, cfg.Output, runID); err != nil {
			return err
		}
		fmt.Printf("导出完成 (run %s): %d 个节点, %d 条边\n", runID, len(nodes), len(edges))
		return nil
	},
}

func init() {
	exportCmd.Flags().String("type", "csv", "output type: csv, json, parquet, kafka, console")
	exportCmd.Flags().String("dir", "output", "output directory for file outputs")
	exportCmd.Flags().StringSlice("kafka-brokers", []string{"localhost:9092"}, "kafka broker list")
	exportCmd.Flags().String("s3-bucket", "", "upload written files to this S3 bucket")
	exportCmd.Flags().String("s3-prefix", "", "S3 key prefix")
	bindFlag("output.type", exportCmd.Flags().Lookup("type"))
	bindFlag("output.dir", exportCmd.Flags().Lookup("dir"))
	bindFlag("output.kafka_brokers", exportCmd.Flags().Lookup("kafka-brokers"))
	bindFlag("output.s3_bucket", exportCmd.Flags().Lookup("s3-bucket"))
	bindFlag("output.s3_prefix", exportCmd.Flags().Lookup("s3-prefix"))
	rootCmd.AddCommand(exportCmd)
}
