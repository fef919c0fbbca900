package usecases

import (
	"strings"

	"github.com/samirrijal/kadal/internal/core/domain"
)

// datasetCatalog is the conservation-oriented catalog used by dataset search.
var datasetCatalog = []domain.Dataset{
	{ID: "MODIS/006/MOD44B", Name: "MODIS Vegetation Continuous Fields", Kind: "ImageCollection", Category: "forest", Description: "Annual percent tree cover", Bands: []string{"Percent_Tree_Cover", "Percent_NonTree_Vegetation", "Percent_NonVegetated"}},
	{ID: "UMD/hansen/global_forest_change_2023_v1_11", Name: "Hansen Global Forest Change", Kind: "Image", Category: "forest", Description: "Tree cover, loss and gain 2000-2023 at 30m", Bands: []string{"treecover2000", "loss", "gain", "lossyear"}},
	{ID: "COPERNICUS/Landcover/100m/Proba-V-C3/Global", Name: "Copernicus Global Land Cover", Kind: "ImageCollection", Category: "forest", Description: "Annual land cover classes at 100m", Bands: []string{"discrete_classification", "forest_type", "tree-coverfraction"}},
	{ID: "JRC/GSW1_4/GlobalSurfaceWater", Name: "JRC Global Surface Water", Kind: "Image", Category: "water", Description: "Surface water occurrence and change 1984-2021", Bands: []string{"occurrence", "change_abs", "seasonality", "recurrence"}},
	{ID: "MODIS/006/MOD44W", Name: "MODIS Land Water Mask", Kind: "ImageCollection", Category: "water", Description: "Yearly land/water mask at 250m", Bands: []string{"water_mask"}},
	{ID: "LANDSAT/LC08/C02/T1_L2", Name: "Landsat 8 Surface Reflectance", Kind: "ImageCollection", Category: "water", Description: "Atmospherically corrected Landsat 8 scenes", Bands: []string{"SR_B2", "SR_B3", "SR_B4", "SR_B5", "ST_B10"}},
	{ID: "ECMWF/ERA5_LAND/HOURLY", Name: "ERA5-Land Hourly", Kind: "ImageCollection", Category: "climate", Description: "Hourly climate reanalysis of land variables", Bands: []string{"temperature_2m", "total_precipitation", "surface_pressure"}},
	{ID: "NASA/GLDAS/V021/NOAH/G025/T3H", Name: "GLDAS-2.1 Noah", Kind: "ImageCollection", Category: "climate", Description: "3-hourly land data assimilation", Bands: []string{"Tair_f_inst", "Rainf_tavg", "SoilMoi0_10cm_inst"}},
	{ID: "MODIS/006/MOD11A1", Name: "MODIS Land Surface Temperature", Kind: "ImageCollection", Category: "climate", Description: "Daily land surface temperature at 1km", Bands: []string{"LST_Day_1km", "LST_Night_1km"}},
	{ID: "MODIS/006/MCD12Q1", Name: "MODIS Land Cover Type", Kind: "ImageCollection", Category: "agriculture", Description: "Yearly land cover classification", Bands: []string{"LC_Type1", "LC_Type2"}},
	{ID: "COPERNICUS/S2_SR_HARMONIZED", Name: "Sentinel-2 Surface Reflectance", Kind: "ImageCollection", Category: "agriculture", Description: "Harmonized Sentinel-2 MSI level-2A", Bands: []string{"B2", "B3", "B4", "B8", "B11", "B12"}},
	{ID: "MODIS/006/MOD13Q1", Name: "MODIS Vegetation Indices", Kind: "ImageCollection", Category: "agriculture", Description: "16-day NDVI and EVI at 250m", Bands: []string{"NDVI", "EVI"}},
	{ID: "MODIS/006/MCD12Q1", Name: "MODIS Land Cover Type", Kind: "ImageCollection", Category: "urban", Description: "Yearly land cover classification", Bands: []string{"LC_Type1", "LC_Type2"}},
	{ID: "LANDSAT/LC08/C02/T1_L2", Name: "Landsat 8 Surface Reflectance", Kind: "ImageCollection", Category: "urban", Description: "Atmospherically corrected Landsat 8 scenes", Bands: []string{"SR_B2", "SR_B3", "SR_B4", "SR_B5", "ST_B10"}},
	{ID: "COPERNICUS/S1_GRD", Name: "Sentinel-1 SAR GRD", Kind: "ImageCollection", Category: "urban", Description: "C-band synthetic aperture radar backscatter", Bands: []string{"VV", "VH"}},
	{ID: "USGS/SRTMGL1_003", Name: "SRTM Digital Elevation 30m", Kind: "Image", Category: "terrain", Description: "Global elevation from the Shuttle Radar Topography Mission", Bands: []string{"elevation"}},
}

// DatasetCategories lists searchable categories in catalog order.
func DatasetCategories() []string {
	var out []string
	seen := map[string]bool{}
	for _, d := range datasetCatalog {
		if !seen[d.Category] {
			seen[d.Category] = true
			out = append(out, d.Category)
		}
	}
	return out
}

// LookupDataset returns the catalog entry for id.
func LookupDataset(id string) (domain.Dataset, bool) {
	for _, d := range datasetCatalog {
		if d.ID == id {
			return d, true
		}
	}
	return domain.Dataset{}, false
}

// SearchDatasets matches keywords against category names. A category matches
// when any keyword is a substring of it.
func SearchDatasets(keywords string, limit int) domain.DatasetSearchResult {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	words := strings.Fields(strings.ToLower(keywords))

	hits := []domain.DatasetHit{}
	for _, category := range DatasetCategories() {
		if !anyContained(words, category) {
			continue
		}
		for _, d := range datasetCatalog {
			if d.Category != category {
				continue
			}
			hits = append(hits, domain.DatasetHit{ID: d.ID, Category: category, Info: d})
			if len(hits) >= limit {
				return domain.DatasetSearchResult{Query: keywords, Results: hits, Count: len(hits)}
			}
		}
	}
	return domain.DatasetSearchResult{Query: keywords, Results: hits, Count: len(hits)}
}

func anyContained(words []string, s string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// DemoLocations returns preset areas for the map client.
func DemoLocations() []domain.DemoLocation {
	return []domain.DemoLocation{
		{
			Name: "Amazon Rainforest", Longitude: -60.0, Latitude: -3.0,
			Bounds:      domain.BoundingBox{North: -2.0, South: -4.0, East: -59.0, West: -61.0},
			Description: "Deforestation monitoring in the Amazon Basin",
		},
		{
			Name: "California Central Valley", Longitude: -121.0, Latitude: 36.5,
			Bounds:      domain.BoundingBox{North: 37.0, South: 36.0, East: -120.5, West: -121.5},
			Description: "Agricultural expansion and water usage patterns",
		},
		{
			Name: "Dubai Urban Development", Longitude: 55.2708, Latitude: 25.2048,
			Bounds:      domain.BoundingBox{North: 25.5, South: 24.9, East: 55.6, West: 54.9},
			Description: "Rapid urban expansion in the desert",
		},
		{
			Name: "Greenland Ice Sheet", Longitude: -42.0, Latitude: 72.0,
			Bounds:      domain.BoundingBox{North: 72.5, South: 71.5, East: -41.5, West: -42.5},
			Description: "Glacial retreat and climate change impacts",
		},
	}
}

// AnalysisTypes lists the analyses the API supports.
func AnalysisTypes() []domain.AnalysisType {
	return []domain.AnalysisType{
		{
			Type:        "similarity_heatmap",
			Name:        "Similarity Heatmap",
			Description: "Compare satellite embeddings between two years to identify changes",
			Parameters:  []string{"bounds", "reference_year", "target_year"},
		},
		{
			Type:        "embeddings",
			Name:        "Satellite Embeddings",
			Description: "Extract satellite embedding vectors for a specific area and year",
			Parameters:  []string{"bounds", "year", "num_points"},
		},
		{
			Type:        "land_use_classification",
			Name:        "Land Use Classification",
			Description: "Classify land use types from embedding characteristics",
			Parameters:  []string{"bounds", "year"},
		},
	}
}
