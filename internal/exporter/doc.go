// Package exporter persists pipeline outputs.
//
// WorkbookStore writes and reads the intermediate xlsx workbooks: the
// training workbook with a national and a region sheet, and the USD
// workbook with the region sheet plus the converted GDP column. Writes go
// through a temporary file and a rename so the dashboard reload never
// reads a half-written file.
//
// CSVWriter writes UTF-8 CSV files with an optional BOM for Excel, and
// is used for the cross-validation summary and forecast tables.
package exporter
