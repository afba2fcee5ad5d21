package model

// Category 品类（导入时从数据中发现，名称在同一数据集内唯一）
type Category struct {
	ID              string `json:"id" validate:"required"`
	Name            string `json:"name" validate:"required"`
	SourceSheetName string `json:"sourceSheetName"`
}

// SheetInfo 工作表元信息（仅用于诊断与导出，不参与筛选）
type SheetInfo struct {
	Name        string   `json:"name" validate:"required"`
	RowCount    int      `json:"rowCount" validate:"gte=0"`
	ColumnNames []string `json:"columnNames"`
}
